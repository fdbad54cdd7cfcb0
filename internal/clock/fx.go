package clock

import "go.uber.org/fx"

// Module binds the production System clock. Tests construct a FakeClock
// directly instead of going through fx.
var Module = fx.Module("clock", fx.Provide(func() Clock { return System{} }))
