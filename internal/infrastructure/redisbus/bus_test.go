package redisbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

func TestEncode_FormatoDelMensaje(t *testing.T) {
	payload, err := encode("agente-1", entity.Invalidation{Kind: entity.InvalidatePlan, TenantID: "t1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"origin":"agente-1","kind":"plan","tenant_id":"t1"}`, string(payload))
}

func TestEncode_TipoInvalido(t *testing.T) {
	_, err := encode("agente-1", entity.Invalidation{Kind: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecode(t *testing.T) {
	origin, inv, err := decode([]byte(`{"origin":"agente-2","kind":"role","actor_id":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, "agente-2", origin)
	assert.Equal(t, entity.Invalidation{Kind: entity.InvalidateRole, ActorID: "u1"}, inv)
}

func TestDecode_Rechazos(t *testing.T) {
	_, _, err := decode([]byte(`no es json`))
	assert.Error(t, err)

	_, _, err = decode([]byte(`{"origin":"x","kind":"desconocido"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewInvalidationBus_Defaults(t *testing.T) {
	b := NewInvalidationBus(nil, "", nil)
	assert.Equal(t, DefaultChannel, b.channel)
	assert.NotEmpty(t, b.origin)
}
