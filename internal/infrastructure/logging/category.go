package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Registry        Category = "Registry"
	Gateway         Category = "Gateway"
	History         Category = "History"
	Persistence     Category = "Persistence"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	Join            SubCategory = "Join"
	Leave           SubCategory = "Leave"
	Broadcast       SubCategory = "Broadcast"
	Snapshot        SubCategory = "Snapshot"
	Mirror          SubCategory = "Mirror"
	Protocol        SubCategory = "Protocol"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"
)

const (
	AppName      ExtraKey = "AppName"
	RoomID       ExtraKey = "RoomId"
	ConnID       ExtraKey = "ConnectionId"
	Username     ExtraKey = "Username"
	Event        ExtraKey = "Event"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
