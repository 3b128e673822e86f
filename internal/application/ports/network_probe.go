package ports

import "context"

// NetworkProbe define el puerto de salida para detectar la dirección de red local del
// dispositivo. La implementación concreta (ICE/STUN) vive en infrastructure/network.
type NetworkProbe interface {
	// Probe devuelve la primera dirección local utilizable o "" si no encontró ninguna.
	// Debe respetar la cancelación de ctx; quien llama impone el tope de tiempo.
	Probe(ctx context.Context) (string, error)
}
