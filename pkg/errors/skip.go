package errors

// SkipMessageError 表示消息可以直接 Ack 跳过（重复消息、已取消的通知等）。
// 消费者捕获该错误时不重新入队。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}
