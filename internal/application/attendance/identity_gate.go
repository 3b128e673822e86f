package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/restopos-api/internal/application/ports"
	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// Valores por defecto del gate.
const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultCheckTTL     = 2 * time.Minute
	DefaultFeature      = entity.FeatureAttendance
)

// Config parámetros del gate de asistencia.
type Config struct {
	ProbeTimeout time.Duration // tope de la sonda de red
	CheckTTL     time.Duration // vida de una verificación sin confirmar
	Feature      string        // feature del plan que habilita la asistencia
}

func (c Config) normalized() Config {
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.CheckTTL <= 0 {
		c.CheckTTL = DefaultCheckTTL
	}
	if c.Feature == "" {
		c.Feature = DefaultFeature
	}
	return c
}

// AccessView lo que el gate necesita del Guard del actor.
type AccessView interface {
	Current() *entity.PermissionSnapshot
	HasFeature(key string) bool
}

// Check verificación de identidad de red en curso para una marcación.
type Check struct {
	ID         string
	TerminalID string
	Actor      entity.Actor
	StartedAt  time.Time

	done      chan struct{}
	sample    entity.NetworkIdentitySample
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Done se cierra cuando la sonda termina (con o sin dirección) o se cancela.
func (c *Check) Done() <-chan struct{} {
	return c.done
}

// Wait espera el resultado de la sonda.
func (c *Check) Wait(ctx context.Context) (entity.NetworkIdentitySample, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return entity.NetworkIdentitySample{}, ctx.Err()
	}
	if c.cancelled.Load() {
		return entity.NetworkIdentitySample{}, domain.ErrCheckCancelled
	}
	if !c.sample.Found() {
		return c.sample, domain.ErrIdentityUndetected
	}
	return c.sample, nil
}

// Gate controla las marcaciones de asistencia: detecta la IP local, pide confirmación al
// operador y solo entonces registra. No valida la IP contra rangos autorizados.
type Gate struct {
	probe    ports.NetworkProbe
	recorder repository.AttendanceRepository
	cfg      Config
	now      func() time.Time
	log      *logger.Logger

	mu         sync.Mutex
	checks     map[string]*Check
	byTerminal map[string]string
}

// NewGate construye el gate.
func NewGate(probe ports.NetworkProbe, recorder repository.AttendanceRepository, cfg Config, log *logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{
		probe:      probe,
		recorder:   recorder,
		cfg:        cfg.normalized(),
		now:        time.Now,
		log:        log.Component("attendance"),
		checks:     make(map[string]*Check),
		byTerminal: make(map[string]string),
	}
}

// Begin inicia una verificación. Exige un rol resuelto y la feature de asistencia del plan.
// Una verificación previa del mismo terminal se cancela.
func (g *Gate) Begin(ctx context.Context, terminalID string, actor entity.Actor, view AccessView) (*Check, error) {
	snap := view.Current()
	if snap == nil || snap.Role() == entity.RoleUnauthenticated {
		return nil, domain.ErrUnauthenticated
	}
	if !view.HasFeature(g.cfg.Feature) {
		return nil, fmt.Errorf("%w: %s", domain.ErrFeatureDisabled, g.cfg.Feature)
	}

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.ProbeTimeout)
	check := &Check{
		ID:         uuid.New().String(),
		TerminalID: terminalID,
		Actor:      actor,
		StartedAt:  g.now(),
		done:       make(chan struct{}),
		cancel:     cancel,
	}

	g.mu.Lock()
	g.sweepLocked()
	if prevID, ok := g.byTerminal[terminalID]; ok {
		if prev, ok := g.checks[prevID]; ok {
			delete(g.checks, prevID)
			prev.abort()
		}
	}
	g.checks[check.ID] = check
	g.byTerminal[terminalID] = check.ID
	g.mu.Unlock()

	go g.run(probeCtx, check)
	return check, nil
}

// Get devuelve una verificación viva.
func (g *Gate) Get(checkID string) (*Check, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.checks[checkID]
	if !ok {
		return nil, domain.ErrCheckNotFound
	}
	return c, nil
}

// Wait espera el resultado de una verificación viva.
func (g *Gate) Wait(ctx context.Context, checkID string) (entity.NetworkIdentitySample, error) {
	c, err := g.Get(checkID)
	if err != nil {
		return entity.NetworkIdentitySample{}, err
	}
	return c.Wait(ctx)
}

// Confirm cierra la verificación con la decisión del operador. La verificación se descarta
// siempre, tanto si se registra como si no.
func (g *Gate) Confirm(ctx context.Context, checkID string, confirmed bool, kind entity.AttendanceKind) (*entity.AttendanceRecord, error) {
	if _, ok := entity.ParseAttendanceKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w: tipo de marcación %q", domain.ErrInvalidInput, kind)
	}
	c, err := g.Get(checkID)
	if err != nil {
		return nil, err
	}
	sample, err := c.Wait(ctx)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, err
	}
	if !g.take(c) {
		return nil, domain.ErrCheckNotFound
	}
	if err != nil {
		return nil, err
	}
	sample.Confirmed = confirmed
	if !sample.Accepted() {
		g.log.Info().Str("terminal_id", c.TerminalID).Str("actor_id", c.Actor.ID).Msg("operador rechazó la red detectada")
		return nil, domain.ErrIdentityUnconfirmed
	}

	record := entity.NewAttendanceRecord(uuid.New().String(), c.Actor, c.TerminalID, kind, sample, g.now())
	if err := g.recorder.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("registrar asistencia: %w", err)
	}
	g.log.Info().Str("terminal_id", c.TerminalID).Str("actor_id", c.Actor.ID).Str("kind", string(kind)).Msg("asistencia registrada")
	return record, nil
}

// Cancel aborta la verificación: la sonda se detiene y no se escribe nada.
func (g *Gate) Cancel(checkID string) error {
	c, err := g.Get(checkID)
	if err != nil {
		return err
	}
	if !g.take(c) {
		return domain.ErrCheckNotFound
	}
	c.abort()
	return nil
}

// take retira la verificación del gate; false si otro la retiró antes.
func (g *Gate) take(c *Check) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.checks[c.ID]; !ok || cur != c {
		return false
	}
	delete(g.checks, c.ID)
	if g.byTerminal[c.TerminalID] == c.ID {
		delete(g.byTerminal, c.TerminalID)
	}
	c.cancel()
	return true
}

func (c *Check) abort() {
	c.cancelled.Store(true)
	c.cancel()
}

// sweepLocked descarta verificaciones abandonadas.
func (g *Gate) sweepLocked() {
	limit := g.now().Add(-g.cfg.CheckTTL)
	for id, c := range g.checks {
		if c.StartedAt.Before(limit) {
			delete(g.checks, id)
			if g.byTerminal[c.TerminalID] == id {
				delete(g.byTerminal, c.TerminalID)
			}
			c.abort()
		}
	}
}

// run ejecuta la sonda con su propio tope: si la implementación ignora ctx, el select
// igualmente termina al vencer el plazo.
func (g *Gate) run(ctx context.Context, c *Check) {
	defer close(c.done)
	defer c.cancel()

	type result struct {
		ip  string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ip, err := g.probe.Probe(ctx)
		ch <- result{ip: ip, err: err}
	}()

	var ip string
	select {
	case res := <-ch:
		if res.err != nil {
			g.log.Debug().Err(res.err).Str("check_id", c.ID).Msg("sonda de red falló")
		}
		ip = res.ip
	case <-ctx.Done():
		g.log.Debug().Str("check_id", c.ID).Msg("sonda de red sin respuesta en el plazo")
	}
	if c.cancelled.Load() {
		return
	}
	c.sample = entity.NetworkIdentitySample{IPAddress: ip, DetectedAt: g.now()}
	g.log.Debug().Str("check_id", c.ID).Bool("found", ip != "").Msg("sonda de red finalizada")
}
