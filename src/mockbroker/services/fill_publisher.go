package services

import (
	"github.com/jiaming2012/mockbroker/src/eventpubsub"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

type EventBusFillPublisher struct {
	bus *eventpubsub.Bus
}

func (p *EventBusFillPublisher) PublishFill(event *models.OrderFilledEvent) {
	p.bus.Publish(eventpubsub.OrderFilledEvent, event)
}

func NewEventBusFillPublisher(bus *eventpubsub.Bus) *EventBusFillPublisher {
	return &EventBusFillPublisher{
		bus: bus,
	}
}
