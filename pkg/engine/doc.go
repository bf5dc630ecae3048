// Package engine provides the core types and interfaces for the Prism
// insight orchestration engine. It defines the capability contract every
// calculation engine must satisfy, the engine and workflow registries, the
// parallel workflow executor, and the cross-engine synthesis step that
// derives themes, alignments, tensions, and witness prompts from a set of
// independent engine outputs.
//
// Engines are opaque collaborators: the package depends only on the Engine
// interface (id, required phase, calculate, validate, cache key) and never
// on engine internals. A workflow names a set of engine ids, an access
// phase, and a synthesis strategy; executing it fans one goroutine out per
// registered engine, consults the tiered cache around each calculation,
// tolerates per-engine failure, and joins all work before synthesis runs.
//
// Typical usage goes through the Orchestrator, which composes the
// registries, the executor, and an optional cache:
//
//	orch := engine.NewOrchestrator(engine.OrchestratorOptions{Cache: tiered})
//	orch.RegisterEngine(myEngine)
//	out, err := orch.Execute(ctx, "birth-blueprint", input, callerPhase)
package engine
