package models

// OrderIdentifierMap bridges caller supplied order ids and internal ones. Each
// account owns its own map so several simulated accounts can coexist.
type OrderIdentifierMap struct {
	clientToInternal map[string]string
	internalToClient map[string]string
}

func NewOrderIdentifierMap() *OrderIdentifierMap {
	return &OrderIdentifierMap{
		clientToInternal: make(map[string]string),
		internalToClient: make(map[string]string),
	}
}

func (m *OrderIdentifierMap) Bind(clientID, internalID string) {
	if clientID == "" {
		return
	}

	m.clientToInternal[clientID] = internalID
	m.internalToClient[internalID] = clientID
}

// Resolve returns the internal id for either form of identifier.
func (m *OrderIdentifierMap) Resolve(id string) string {
	if internal, ok := m.clientToInternal[id]; ok {
		return internal
	}

	return id
}

func (m *OrderIdentifierMap) ClientID(internalID string) (string, bool) {
	clientID, ok := m.internalToClient[internalID]
	return clientID, ok
}

func (m *OrderIdentifierMap) Len() int {
	return len(m.clientToInternal)
}
