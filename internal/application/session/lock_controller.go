package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// Valores por defecto de la política de enfriamiento.
const (
	DefaultMaxAttempts = 3
	DefaultCooldown    = 30 * time.Second
)

// Config política de reintentos de PIN.
type Config struct {
	MaxAttempts int           // fallos consecutivos antes del enfriamiento
	Cooldown    time.Duration // duración del enfriamiento
}

// DefaultConfig política por defecto: 3 intentos, 30 segundos.
func DefaultConfig() Config {
	return Config{MaxAttempts: DefaultMaxAttempts, Cooldown: DefaultCooldown}
}

func (c Config) normalized() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	return c
}

// LockController bloqueo de sesión de un terminal POS para el actor activo.
// Arranca bloqueado; el PIN se verifica siempre en el colaborador, nunca localmente.
type LockController struct {
	terminalID string
	actorID    string
	verifier   repository.PinVerifier
	cfg        Config
	now        func() time.Time
	log        *logger.Logger

	unlockMu sync.Mutex // serializa los intentos de desbloqueo

	mu            sync.RWMutex
	state         entity.LockState
	failures      int
	cooldownUntil time.Time
}

// NewLockController crea el controlador en estado Locked.
func NewLockController(terminalID, actorID string, verifier repository.PinVerifier, cfg Config, log *logger.Logger) *LockController {
	if log == nil {
		log = logger.Nop()
	}
	return &LockController{
		terminalID: terminalID,
		actorID:    actorID,
		verifier:   verifier,
		cfg:        cfg.normalized(),
		now:        time.Now,
		log:        log.Component("session_lock"),
		state:      entity.LockLocked,
	}
}

// ActorID actor dueño del bloqueo.
func (c *LockController) ActorID() string {
	return c.actorID
}

// State estado actual.
func (c *LockController) State() entity.LockState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsLocked no espera a una verificación en curso.
func (c *LockController) IsLocked() bool {
	return c.State() == entity.LockLocked
}

// Lock bloqueo explícito del operador.
func (c *LockController) Lock() {
	c.lock("manual")
}

// Timeout bloqueo por inactividad; lo dispara quien mide la inactividad.
func (c *LockController) Timeout() {
	c.lock("inactividad")
}

func (c *LockController) lock(reason string) {
	c.mu.Lock()
	changed := c.state != entity.LockLocked
	c.state = entity.LockLocked
	c.mu.Unlock()
	if changed {
		c.log.Info().Str("terminal_id", c.terminalID).Str("reason", reason).Msg("sesión bloqueada")
	}
}

// Unlock verifica el PIN con el colaborador y desbloquea si es correcto.
//
// Errores:
//   - domain.ErrPinCooldown: demasiados fallos recientes; no se contacta al colaborador.
//   - domain.ErrPinRejected: PIN incorrecto; cuenta como fallo.
//   - domain.ErrVerificationUnavailable: el colaborador falló; no cuenta como fallo.
//   - domain.ErrInvalidInput: PIN vacío.
func (c *LockController) Unlock(ctx context.Context, pin string) error {
	c.unlockMu.Lock()
	defer c.unlockMu.Unlock()

	if !c.IsLocked() {
		return nil
	}
	if remaining := c.CooldownRemaining(); remaining > 0 {
		c.log.Warn().Str("terminal_id", c.terminalID).Dur("remaining", remaining).Msg("intento de PIN en enfriamiento")
		return fmt.Errorf("%w (restan %s)", domain.ErrPinCooldown, remaining.Round(time.Second))
	}
	if pin == "" {
		return fmt.Errorf("%w: PIN vacío", domain.ErrInvalidInput)
	}

	ok, err := c.verifier.VerifyPin(ctx, c.actorID, pin)
	if err != nil {
		c.log.Warn().Err(err).Str("terminal_id", c.terminalID).Msg("verificación de PIN no disponible")
		return fmt.Errorf("%w: %w", domain.ErrVerificationUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.failures++
		if c.failures >= c.cfg.MaxAttempts {
			c.cooldownUntil = c.now().Add(c.cfg.Cooldown)
			c.log.Warn().Str("terminal_id", c.terminalID).Int("failures", c.failures).Dur("cooldown", c.cfg.Cooldown).Msg("PIN bloqueado temporalmente")
		} else {
			c.log.Info().Str("terminal_id", c.terminalID).Int("failures", c.failures).Msg("PIN incorrecto")
		}
		return domain.ErrPinRejected
	}
	c.state = entity.LockUnlocked
	c.failures = 0
	c.cooldownUntil = time.Time{}
	c.log.Info().Str("terminal_id", c.terminalID).Msg("sesión desbloqueada")
	return nil
}

// FailedAttempts fallos consecutivos registrados.
func (c *LockController) FailedAttempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failures
}

// CooldownRemaining tiempo restante de enfriamiento. Al vencer, el contador se reinicia.
func (c *LockController) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cooldownUntil.IsZero() {
		return 0
	}
	remaining := c.cooldownUntil.Sub(c.now())
	if remaining <= 0 {
		c.cooldownUntil = time.Time{}
		c.failures = 0
		return 0
	}
	return remaining
}
