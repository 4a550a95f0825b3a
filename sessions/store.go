package sessions

import (
	"sync"

	"github.com/erpconnect/wagateway/pkg/kernel"
)

// AuthChecker es la consulta mínima de la librería externa que necesita el
// Store para cebar registros nuevos
type AuthChecker interface {
	IsAuthenticated(key kernel.SessionKey) bool
}

// Store es el dueño exclusivo del estado rastreado de todas las sesiones.
// Los registros se crean de forma perezosa y viven lo que dura el proceso;
// una desconexión explícita actualiza el registro pero nunca lo elimina.
//
// Lectores y escritores llegan desde dos fuentes concurrentes (handlers de
// request y callbacks de la librería), así que todas las operaciones van
// guardadas por el mutex; cada Update reemplaza el registro completo, con
// semántica last-writer-wins por clave.
type Store struct {
	mu     sync.RWMutex
	states map[kernel.SessionKey]TrackedState
	auth   AuthChecker
}

// NewStore crea el Store. auth puede ser nil en tests que no necesitan
// cebado de estado.
func NewStore(auth AuthChecker) *Store {
	return &Store{
		states: make(map[kernel.SessionKey]TrackedState),
		auth:   auth,
	}
}

// Get retorna el estado rastreado si existe. Sin efectos secundarios.
func (s *Store) Get(key kernel.SessionKey) (TrackedState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[key]
	return st, ok
}

// GetOrCreate retorna el estado rastreado, creando un registro por defecto
// si no existía. Si la librería ya reporta una sesión autenticada para la
// clave, el registro nuevo se ceba directamente como CONNECTED.
func (s *Store) GetOrCreate(key kernel.SessionKey) TrackedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(key)
}

func (s *Store) getOrCreateLocked(key kernel.SessionKey) TrackedState {
	if st, ok := s.states[key]; ok {
		return st
	}
	st := TrackedState{Status: StatusNotInitialized}
	if s.auth != nil && s.auth.IsAuthenticated(key) {
		st.Status = StatusConnected
	}
	s.states[key] = st
	return st
}

// Update fusiona el patch sobre el registro existente (creándolo si hace
// falta) y lo reemplaza atómicamente. Cualquier transición fuera de QR_READY
// limpia la imagen QR, de modo que el invariante qrImage⇔QR_READY se cumple
// sin depender de cada llamador.
func (s *Store) Update(key kernel.SessionKey, patch Patch) TrackedState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(key)
	if patch.Status != nil {
		st.Status = *patch.Status
	}
	if patch.QRImage != nil {
		st.QRImage = *patch.QRImage
	}
	if patch.LastError != nil {
		st.LastError = *patch.LastError
	}
	if st.Status != StatusQRReady {
		st.QRImage = ""
	}
	s.states[key] = st
	return st
}
