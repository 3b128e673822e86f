package entity

// FeatureSet features habilitadas para un plan. Es inmutable: se construye una vez
// y se comparte entre lecturas concurrentes sin copia.
//
// Una clave ausente resuelve a true (compatibilidad hacia atrás); nunca hay un "desconocido".
type FeatureSet struct {
	plan       PlanType
	flags      map[string]bool
	allEnabled bool
}

// NewFeatureSet copia flags para que el llamador no pueda mutar el conjunto publicado.
func NewFeatureSet(plan PlanType, flags map[string]bool) *FeatureSet {
	cp := make(map[string]bool, len(flags))
	for k, v := range flags {
		cp[k] = v
	}
	return &FeatureSet{plan: plan, flags: cp}
}

// AllFeaturesEnabled conjunto usado cuando no se pudo consultar el plan (fail-open).
func AllFeaturesEnabled(plan PlanType) *FeatureSet {
	return &FeatureSet{plan: plan, flags: map[string]bool{}, allEnabled: true}
}

// Enabled informa si la feature está habilitada. Un conjunto nil también habilita todo.
func (f *FeatureSet) Enabled(key string) bool {
	if f == nil || f.allEnabled {
		return true
	}
	enabled, ok := f.flags[key]
	if !ok {
		return true
	}
	return enabled
}

// Plan plan del que proviene el conjunto.
func (f *FeatureSet) Plan() PlanType {
	if f == nil {
		return ""
	}
	return f.plan
}

// AllEnabled true si el conjunto es el de fail-open.
func (f *FeatureSet) AllEnabled() bool {
	return f == nil || f.allEnabled
}

// Flags devuelve una copia de las claves definidas explícitamente.
func (f *FeatureSet) Flags() map[string]bool {
	if f == nil {
		return map[string]bool{}
	}
	cp := make(map[string]bool, len(f.flags))
	for k, v := range f.flags {
		cp[k] = v
	}
	return cp
}
