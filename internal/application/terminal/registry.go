package terminal

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/application/session"
	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// Terminal contexto de actor activo en un terminal POS.
type Terminal struct {
	ID    string
	Actor entity.Actor
	Guard *access.Guard
	Lock  *session.LockController
}

// Registry mantiene el contexto de actor de cada terminal atendido por este agente.
type Registry struct {
	svc      *access.Service
	verifier repository.PinVerifier
	lockCfg  session.Config
	log      *logger.Logger

	mu        sync.RWMutex
	terminals map[string]*Terminal
}

// NewRegistry construye el registro.
func NewRegistry(svc *access.Service, verifier repository.PinVerifier, lockCfg session.Config, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		svc:       svc,
		verifier:  verifier,
		lockCfg:   lockCfg,
		log:       log.Component("terminal"),
		terminals: make(map[string]*Terminal),
	}
}

// Attach asocia el actor al terminal (login o cambio de tenant) y resuelve sus permisos.
// Un actor nuevo arranca con la sesión bloqueada; el mismo actor en otro tenant conserva
// el bloqueo pero obtiene un snapshot nuevo.
func (r *Registry) Attach(ctx context.Context, terminalID string, actor entity.Actor) (*Terminal, error) {
	if terminalID == "" || actor.ID == "" || actor.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	prev := r.terminals[terminalID]
	t := prev
	switch {
	case prev == nil || prev.Actor.ID != actor.ID:
		lock := session.NewLockController(terminalID, actor.ID, r.verifier, r.lockCfg, r.log)
		t = &Terminal{ID: terminalID, Actor: actor, Guard: access.NewGuard(lock), Lock: lock}
	case !prev.Actor.SameContext(actor):
		t = &Terminal{ID: terminalID, Actor: actor, Guard: access.NewGuard(prev.Lock), Lock: prev.Lock}
	default:
		// Mismo contexto: se conserva el Guard y se refresca la pista de rol del token.
		t = &Terminal{ID: terminalID, Actor: actor, Guard: prev.Guard, Lock: prev.Lock}
	}
	r.terminals[terminalID] = t
	r.mu.Unlock()

	if prev != nil && prev.Guard != t.Guard {
		prev.Guard.Clear()
	}
	r.log.Info().Str("terminal_id", terminalID).Str("actor_id", actor.ID).Str("tenant_id", actor.TenantID).Msg("contexto de actor asociado")

	if _, err := r.refresh(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// Get devuelve el contexto activo del terminal.
func (r *Registry) Get(terminalID string) (*Terminal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.terminals[terminalID]
	if !ok {
		return nil, domain.ErrTerminalNotAttached
	}
	return t, nil
}

// Detach termina el contexto del actor (logout): se descarta el snapshot y se bloquea.
func (r *Registry) Detach(terminalID string) error {
	r.mu.Lock()
	t, ok := r.terminals[terminalID]
	delete(r.terminals, terminalID)
	r.mu.Unlock()
	if !ok {
		return domain.ErrTerminalNotAttached
	}
	t.Guard.Clear()
	t.Lock.Lock()
	r.log.Info().Str("terminal_id", terminalID).Str("actor_id", t.Actor.ID).Msg("contexto de actor finalizado")
	return nil
}

// Refresh vuelve a resolver los permisos del terminal. Mientras tanto el Guard sigue
// sirviendo el snapshot anterior.
func (r *Registry) Refresh(ctx context.Context, terminalID string) (*entity.PermissionSnapshot, error) {
	t, err := r.Get(terminalID)
	if err != nil {
		return nil, err
	}
	return r.refresh(ctx, t)
}

// HandleInvalidation aplica un aviso de cambio y re-resuelve los terminales afectados.
// Devuelve cuántos terminales se refrescaron.
func (r *Registry) HandleInvalidation(ctx context.Context, inv entity.Invalidation) (int, error) {
	if !inv.Valid() {
		return 0, domain.ErrInvalidInput
	}
	r.svc.ApplyInvalidation(inv)

	r.mu.RLock()
	affected := make([]*Terminal, 0, len(r.terminals))
	for _, t := range r.terminals {
		if inv.Matches(t.Actor) {
			affected = append(affected, t)
		}
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range affected {
		t := t
		g.Go(func() error {
			_, err := r.refresh(gctx, t)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	r.log.Debug().Str("kind", string(inv.Kind)).Str("tenant_id", inv.TenantID).Int("refreshed", len(affected)).Msg("invalidación aplicada")
	return len(affected), nil
}

func (r *Registry) refresh(ctx context.Context, t *Terminal) (*entity.PermissionSnapshot, error) {
	snap, err := r.svc.ResolvePermissions(ctx, t.Actor)
	if err != nil {
		return nil, err
	}
	t.Guard.Publish(snap)
	return snap, nil
}
