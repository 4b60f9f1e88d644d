// Package events provee un bus de eventos en proceso: los casos de uso
// publican sobre el puerto event.Publisher y los suscriptores reaccionan en
// el mismo proceso (notificaciones, logging, futuras integraciones).
package events

import (
	"sync"

	"github.com/jhoicas/Creditos-api/internal/domain/event"
	"github.com/jhoicas/Creditos-api/pkg/logger"
)

var _ event.Publisher = (*Bus)(nil)

// Handler procesa un evento publicado.
type Handler func(eventType string, payload any)

// Bus implementación en memoria del puerto event.Publisher. La entrega es
// síncrona y en orden de suscripción; un handler que tarde bloquea al emisor.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewBus construye el bus. El logger registra cada evento publicado.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registra un handler para un tipo de evento.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish entrega el evento a los handlers suscritos al tipo. Se llama después
// del commit de la transacción que originó el evento: un fallo de handler no
// revierte nada, solo se loguea.
func (b *Bus) Publish(eventType string, payload any) {
	b.mu.RLock()
	hs := b.handlers[eventType]
	b.mu.RUnlock()

	b.log.Debug().Str("event", eventType).Int("handlers", len(hs)).Msg("evento publicado")

	for _, h := range hs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					b.log.Error().Str("event", eventType).Any("panic", rec).Msg("handler de evento falló")
				}
			}()
			h(eventType, payload)
		}()
	}
}
