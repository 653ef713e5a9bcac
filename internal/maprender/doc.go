// Package maprender provides an in-memory map renderer used as the shared
// resource patterns attach to.
//
// A Map holds sources and layers on top of a style. Loading a style (at
// construction, via SetStyle or ReloadStyle) emits StyleLoading, wipes every
// layer and source, and emits StyleLoaded once the load delay elapsed.
// Mutations are rejected with ErrStyleNotLoaded while a style is loading.
//
// Hosts translate style events into resource readiness:
//
//	m.OnStyle(func(e maprender.StyleEvent) {
//	    _ = provider.SetReady(e == maprender.StyleLoaded)
//	})
package maprender
