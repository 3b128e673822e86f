package network

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/jhoicas/restopos-api/internal/application/ports"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

var _ ports.NetworkProbe = (*ICEProbe)(nil)

// ICEProbe detecta la IP local del dispositivo reuniendo candidatos ICE contra los
// servidores STUN configurados. Se queda con el primer candidato host IPv4 utilizable y,
// si no aparece ninguno, con el primer host IPv6.
type ICEProbe struct {
	servers []webrtc.ICEServer
	log     *logger.Logger
}

// NewICEProbe construye la sonda. Sin URLs solo se reúnen candidatos host.
func NewICEProbe(stunURLs []string, log *logger.Logger) *ICEProbe {
	if log == nil {
		log = logger.Nop()
	}
	var servers []webrtc.ICEServer
	if len(stunURLs) > 0 {
		servers = []webrtc.ICEServer{{URLs: stunURLs}}
	}
	return &ICEProbe{servers: servers, log: log.Component("ice_probe")}
}

// Probe reúne candidatos hasta encontrar una IPv4 host, completar la recolección o
// vencer ctx. En los dos últimos casos devuelve el respaldo IPv6 o "".
func (p *ICEProbe) Probe(ctx context.Context) (string, error) {
	settingEngine := webrtc.SettingEngine{}
	settingEngine.SetNetworkTypes([]webrtc.NetworkType{webrtc.NetworkTypeUDP4, webrtc.NetworkTypeUDP6})

	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: p.servers})
	if err != nil {
		return "", fmt.Errorf("crear peer connection: %w", err)
	}
	defer func() {
		if err := pc.Close(); err != nil {
			p.log.Debug().Err(err).Msg("cerrar peer connection")
		}
	}()

	sel := &candidateSelector{}
	found := make(chan string, 1)
	gathered := make(chan struct{})
	var once sync.Once

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			once.Do(func() { close(gathered) })
			return
		}
		p.log.Trace().Str("type", c.Typ.String()).Str("address", c.Address).Msg("candidato ICE")
		if ip, final := sel.offer(c.Typ == webrtc.ICECandidateTypeHost, c.Address); final {
			select {
			case found <- ip:
			default:
			}
		}
	})

	// Sin un data channel la oferta no lleva transporte y no se reúnen candidatos.
	if _, err := pc.CreateDataChannel("probe", nil); err != nil {
		return "", fmt.Errorf("crear data channel: %w", err)
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("crear oferta: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	select {
	case ip := <-found:
		return ip, nil
	case <-gathered:
		return sel.best(), nil
	case <-ctx.Done():
		return sel.best(), nil
	}
}

// candidateSelector acumula candidatos; seguro para el callback de pion.
type candidateSelector struct {
	mu       sync.Mutex
	ipv4     string
	fallback string
}

// offer registra un candidato. final=true cuando ya hay una IPv4 host y no hace falta seguir.
func (s *candidateSelector) offer(host bool, address string) (string, bool) {
	if !host {
		return "", false
	}
	addr, ok := usableAddress(address)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr.Is4() {
		if s.ipv4 == "" {
			s.ipv4 = addr.String()
		}
		return s.ipv4, true
	}
	if s.fallback == "" {
		s.fallback = addr.String()
	}
	return "", false
}

func (s *candidateSelector) best() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ipv4 != "" {
		return s.ipv4
	}
	return s.fallback
}

// usableAddress descarta nombres mDNS (*.local), loopback, unspecified y link-local.
func usableAddress(address string) (netip.Addr, bool) {
	if address == "" || strings.HasSuffix(address, ".local") {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return netip.Addr{}, false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() || addr.IsMulticast() {
		return netip.Addr{}, false
	}
	return addr.WithZone(""), true
}
