package dispatch

import "fmt"

// Caller-facing messages.
const (
	msgDockAccepted     = "已强制中断当前任务，机器人正在返回充电座～"
	msgZoneAccepted     = "已强制中断当前任务，机器人正在前往%s清扫～"
	msgRejectedStatus   = "新指令发送失败，状态码：%d"
	msgTransportFailure = "操作失败，请检查设备是否在线或重试"
	msgTelemetryMissing = "操作失败：无法获取机器人电量"
	msgBatteryLow       = "机器人电量不足%d%%，已无法执行任务，请手动回充"
)

func acceptedMessage(name string, dock bool) string {
	if dock {
		return msgDockAccepted
	}
	return fmt.Sprintf(msgZoneAccepted, name)
}

// FailureMessage maps a service call error to the caller-facing message.
// A non-2xx reply reports its status code; anything else is a transport
// failure.
func FailureMessage(code int, ok bool) string {
	if ok {
		return fmt.Sprintf(msgRejectedStatus, code)
	}
	return msgTransportFailure
}
