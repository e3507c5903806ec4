package treespec

// Package treespec provides:
//
// - A two-phase schema registry (open for registration, frozen after cross-reference resolution)
// - Recursive validation and normalization of tree-shaped data with static and context-computed defaults
// - A stable error model via Issues (field path, code, message, hint)
// - Schema-keyed operation dispatch with an explicit ancestor stack for manual recursion
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place the builder DSL under dsl/ and YAML bundle loading under schemafile/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  reg := treespec.NewRegistry()
//  _ = reg.Register(nodeSchema)
//  if err := reg.Freeze(); err != nil { ... }
//
//  node, err := reg.ValidateJSON(ctx, "node", data)
//  out, err := reg.Dispatch(ctx, "depth", node, nil, nil)
//
