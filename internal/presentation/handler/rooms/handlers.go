package rooms

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/infrastructure/json"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/infrastructure/validate"
	"github.com/inkroom/inkroom/internal/registry"
)

// Publisher announces room creation to the broker. Optional.
type Publisher interface {
	RoomCreated(roomID string)
}

type Handler struct {
	registry       *registry.Registry
	store          domain.RoomStore
	publisher      Publisher
	directoryLimit int
	log            logging.Logger
}

func NewHandler(reg *registry.Registry, store domain.RoomStore, publisher Publisher, directoryLimit int, log logging.Logger) *Handler {
	if directoryLimit <= 0 {
		directoryLimit = 20
	}
	return &Handler{
		registry:       reg,
		store:          store,
		publisher:      publisher,
		directoryLimit: directoryLimit,
		log:            log,
	}
}

var (
	validateName     = validate.Field("name", validate.MaxLength(64))
	validatePassword = validate.Field("password", validate.MaxLength(72))
)

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validateName(req.Name); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	roomID := domain.NewRoomID()

	room, err := h.registry.GetOrCreate(ctx, roomID, req.Name, req.UserID, req.IsPrivate, req.Password)
	if err != nil {
		h.log.Errorf("failed to create room %s: %v", roomID, err)
		json.WriteInternalError(w, err)
		return
	}

	if err := h.store.Save(ctx, room); err != nil {
		h.log.Warn(logging.Persistence, logging.Mirror, "room create not persisted", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	if h.publisher != nil {
		h.publisher.RoomCreated(roomID)
	}

	json.Write(w, http.StatusOK, toRoomResponse(room))
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteBadRequestError(w, "room ID is missing")
		return
	}

	room, ok := h.registry.Find(r.Context(), roomID)
	if !ok {
		json.WriteNotFoundError(w, "Room not found")
		return
	}

	json.Write(w, http.StatusOK, toRoomResponse(room))
}

func (h *Handler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListPublic(r.Context(), h.directoryLimit)
	if err != nil {
		// Serve the live view when the durable store is unavailable.
		h.log.Warnf("directory query failed, using registry: %v", err)
		rooms = h.registry.ListPublic(h.directoryLimit)
	}

	summaries := make([]roomSummary, 0, len(rooms))
	for i := range rooms {
		summaries = append(summaries, toRoomSummary(&rooms[i]))
	}

	json.Write(w, http.StatusOK, summaries)
}

func toMembers(members []domain.Member) []memberResponse {
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			Username: m.Username,
			JoinedAt: m.JoinedAt,
		})
	}
	return out
}

func toRoomResponse(room *domain.Room) roomResponse {
	return roomResponse{
		RoomID:    room.ID,
		Name:      room.Name,
		IsPrivate: room.IsPrivate,
		CreatedBy: room.CreatedBy,
		Users:     toMembers(room.Members),
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toRoomSummary(room *domain.Room) roomSummary {
	return roomSummary{
		RoomID:    room.ID,
		Name:      room.Name,
		Users:     toMembers(room.Members),
		CreatedAt: room.CreatedAt,
	}
}
