package intr

import "sync"

// Router aggregates every I/O controller discovered at boot so a
// global system interrupt number can be resolved to its owning pin
// without the caller tracking which controller owns which GSI range,
// per spec.md §6's pin_lookup(gsi) entry point.
type Router struct {
	mu          sync.RWMutex
	controllers []*IOController
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Add registers an I/O controller's GSI range with the router.
func (r *Router) Add(c *IOController) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers = append(r.controllers, c)
}

// PinLookup resolves gsi to its owning pin by scanning the registered
// controllers' ranges.
func (r *Router) PinLookup(gsi int) (*Pin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.controllers {
		if p, ok := c.PinForGSI(gsi); ok {
			return p, true
		}
	}
	return nil, false
}

var defaultRouter = NewRouter()

// SetDefaultRouter replaces the package-level router PinLookup queries.
// mazcore.Init calls this once at boot with the router it built from
// the parsed MADT-like table.
func SetDefaultRouter(r *Router) {
	defaultRouter = r
}

// PinLookup resolves gsi against the package-level default router.
func PinLookup(gsi int) (*Pin, bool) {
	return defaultRouter.PinLookup(gsi)
}
