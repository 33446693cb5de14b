// Package pluginmgr implements spec.md §4.F's plugin framework: the
// per-name Plugin registry and the PluginsManager that routes a
// PluginBinding to the plugin it names. The Operation a Plugin produces is
// defined in internal/function, since it needs the full Evaluator (in
// particular Invoke, for the iteration plugin) rather than bare WiresRef
// slices; this package only builds and looks up Operations, it never calls
// one.
package pluginmgr

import (
	"zkir/internal/errors"
	"zkir/internal/function"
	"zkir/internal/gate"
)

// Plugin provides every Operation of a single plugin name. It has no way to
// register a backend for a plugin-defined wire type.
type Plugin interface {
	// Create produces a callable Operation for operationName, validating
	// that sig is well-formed for it. A nil Operation with a non-nil error
	// reports spec.md's PluginSignatureRejected.
	Create(operationName string, sig *gate.Signature, binding gate.PluginBinding) (function.Operation, error)
}

// Manager routes PluginBinding.PluginName to a registered Plugin.
type Manager struct {
	plugins map[string]Plugin
}

// NewManager creates an empty plugin registry.
func NewManager() *Manager {
	return &Manager{plugins: make(map[string]Plugin)}
}

// Register names a Plugin implementation under pluginName. Re-registering a
// name replaces the previous implementation.
func (m *Manager) Register(pluginName string, p Plugin) {
	m.plugins[pluginName] = p
}

// Create resolves binding.PluginName and asks it to build an Operation for
// binding.OperationName and sig.
func (m *Manager) Create(sig *gate.Signature, binding gate.PluginBinding, line int) (function.Operation, error) {
	p, ok := m.plugins[binding.PluginName]
	if !ok {
		return nil, errors.UnknownPlugin(binding.PluginName, line)
	}
	op, err := p.Create(binding.OperationName, sig, binding)
	if err != nil {
		return nil, err
	}
	return op, nil
}
