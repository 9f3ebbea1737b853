package errors

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

func (d Definition) Error() string {
	return d.Message
}

// 通知编排相关错误。
var (
	NotificationTypeInvalid = Definition{Code: "NOTIFICATION_TYPE_INVALID", Message: "Notification type invalid"}
	PreferencesInvalid      = Definition{Code: "PREFERENCES_INVALID", Message: "Notification preferences invalid"}
	OrchestratorNotReady    = Definition{Code: "ORCHESTRATOR_NOT_READY", Message: "Notification orchestrator not initialized"}
	PermissionDenied        = Definition{Code: "PERMISSION_DENIED", Message: "Notification permission denied"}
	TapPayloadInvalid       = Definition{Code: "TAP_PAYLOAD_INVALID", Message: "Notification tap payload invalid"}
)

// 用户与数据相关错误。
var (
	Unauthorized  = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	UserNotFound  = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
)

// 摘要模块错误。
var (
	DigestNotFound = Definition{Code: "DIGEST_NOT_FOUND", Message: "No digest for requested day"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	NotificationTypeInvalid.Code: NotificationTypeInvalid,
	PreferencesInvalid.Code:      PreferencesInvalid,
	OrchestratorNotReady.Code:    OrchestratorNotReady,
	PermissionDenied.Code:        PermissionDenied,
	TapPayloadInvalid.Code:       TapPayloadInvalid,
	Unauthorized.Code:            Unauthorized,
	InvalidUserID.Code:           InvalidUserID,
	UserNotFound.Code:            UserNotFound,
	DigestNotFound.Code:          DigestNotFound,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
