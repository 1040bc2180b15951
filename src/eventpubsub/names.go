package eventpubsub

const (
	OrderFilledEvent   = "OrderFilledEvent"
	AccountClosedEvent = "AccountClosedEvent"
)
