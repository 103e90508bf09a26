package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hook points called right before a status result is returned
const (
	HookStatusUpdateBeforeReturn = "statusUpdate_beforeReturn"
	HookStatusSystemBeforeReturn = "statusSystem_beforeReturn"
)

// UpdateHook may amend an update status before it is returned
type UpdateHook func(ctx context.Context, status *UpdateStatus)

// SystemHook may amend system information before it is returned
type SystemHook func(ctx context.Context, info *SystemInfo)

type hooks struct {
	mu     sync.RWMutex
	update []UpdateHook
	system []SystemHook
}

// OnStatusUpdate registers fn for statusUpdate_beforeReturn
func (s *Service) OnStatusUpdate(fn UpdateHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.update = append(s.hooks.update, fn)
}

// OnStatusSystem registers fn for statusSystem_beforeReturn
func (s *Service) OnStatusSystem(fn SystemHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.system = append(s.hooks.system, fn)
}

func (h *hooks) runUpdate(ctx context.Context, status *UpdateStatus) {
	h.mu.RLock()
	fns := h.update
	h.mu.RUnlock()

	if len(fns) > 0 {
		log.Trace().Str("hook", HookStatusUpdateBeforeReturn).Int("count", len(fns)).Msg("Running hooks")
	}
	for _, fn := range fns {
		fn(ctx, status)
	}
}

func (h *hooks) runSystem(ctx context.Context, info *SystemInfo) {
	h.mu.RLock()
	fns := h.system
	h.mu.RUnlock()

	if len(fns) > 0 {
		log.Trace().Str("hook", HookStatusSystemBeforeReturn).Int("count", len(fns)).Msg("Running hooks")
	}
	for _, fn := range fns {
		fn(ctx, info)
	}
}
