package payments

import (
	"fmt"
	"sort"
)

type PaymentManager struct {
	gateways map[string]Gateway
}

func NewPaymentManager() *PaymentManager {
	return &PaymentManager{gateways: make(map[string]Gateway)}
}

func (m *PaymentManager) RegisterGateway(gateway Gateway) {
	m.gateways[gateway.Name()] = gateway
}

func (m *PaymentManager) Gateway(name string) (Gateway, error) {
	gateway, ok := m.gateways[name]
	if !ok {
		return nil, fmt.Errorf("gateway not registered: %s (have %v)", name, m.Names())
	}
	return gateway, nil
}

func (m *PaymentManager) Names() []string {
	names := make([]string, 0, len(m.gateways))
	for n := range m.gateways {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
