package container

import (
	"fmt"
	"reflect"
)

// QualifierBuilder implements the fluent qualifier API.
//
//	c.When("orderService").Needs((*Notifier)(nil)).Give("mailNotifier")
type QualifierBuilder struct {
	container *Container
	consumer  string
	needs     any
}

// When starts a qualifier rule for the bean named consumer. Rules must be
// given before Initialize.
func (c *Container) When(consumer string) *QualifierBuilder {
	return &QualifierBuilder{container: c, consumer: consumer}
}

// Needs names the capability the consumer depends on: a typed nil interface
// pointer such as (*Notifier)(nil), or a value of a concrete type.
func (b *QualifierBuilder) Needs(capability any) *QualifierBuilder {
	b.needs = capability
	return b
}

// Give pins the capability to the bean named bean.
func (b *QualifierBuilder) Give(bean string) error {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()
	if b.container.initialized.Load() {
		return ErrAlreadyInitialized
	}
	return b.container.addQualifier(b.consumer, b.needs, bean)
}

func (c *Container) addQualifier(consumer string, capability any, bean string) error {
	t, err := capabilityOf(capability)
	if err != nil {
		return &DescriptorError{Type: consumer, Reason: err.Error()}
	}
	if bean == "" {
		return &DescriptorError{Type: consumer, Reason: "empty qualifier for " + t.String()}
	}
	if c.qualifiers[consumer] == nil {
		c.qualifiers[consumer] = make(map[reflect.Type]string)
	}
	c.qualifiers[consumer][t] = bean
	return nil
}

// capabilityOf maps (*Iface)(nil) to Iface and any other value to its type.
func capabilityOf(v any) (reflect.Type, error) {
	if v == nil {
		return nil, fmt.Errorf("nil capability")
	}
	if t, err := interfaceOf(v); err == nil {
		return t, nil
	}
	return reflect.TypeOf(v), nil
}
