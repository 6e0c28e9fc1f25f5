package compiler

import "go.uber.org/zap"

// zapDepth is a small helper so scope enter/leave trace points (§3
// ambient logging addition) don't repeat the same field construction at
// every call site.
func zapDepth(env *Environment) zap.Field {
	return zap.Int("scope_depth", env.Depth())
}
