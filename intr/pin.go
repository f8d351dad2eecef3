package intr

// Pin is a hardware interrupt input: a capability object (mask, eoi,
// configure) binding a hardware source to a slot, per spec.md §4.1 and
// §3. Invariant: configuration must precede unmasking. Mask panics if
// called before Configure, since unmasking an unconfigured pin would
// deliver interrupts through a vector nothing has bound.
type Pin struct {
	owner      *IOController
	index      int
	name       string
	slot       int // -1 until bound via Configure
	configured bool
	masked     bool
}

// Name returns the pin's human-readable name.
func (p *Pin) Name() string { return p.name }

// Index returns the pin's index within its owning controller.
func (p *Pin) Index() int { return p.index }

// Slot returns the global slot index this pin is bound to, or -1 if
// Configure has not yet been called.
func (p *Pin) Slot() int { return p.slot }

// Configured reports whether Configure has run for this pin.
func (p *Pin) Configured() bool { return p.configured }

// Configure chooses trigger/polarity flags, binds a free slot as this
// pin's vector, and programs the redirection entry. It must be called
// before the pin is ever unmasked.
func (p *Pin) Configure(level, highPolarity bool) (TriggerMode, error) {
	return p.owner.configure(p, level, highPolarity)
}

// Mask sets or clears the pin's mask bit. Panics if Configure has not
// yet run, enforcing the "configuration must precede unmasking"
// invariant from spec.md §3.
func (p *Pin) Mask(masked bool) {
	if !p.configured {
		panic("intr: Pin.Mask called before Configure")
	}
	p.owner.mask(p.index, masked)
	p.masked = masked
}

// Masked reports the pin's last-requested mask state.
func (p *Pin) Masked() bool { return p.masked }

// EOI signals end-of-interrupt, delegating to the owning controller's
// bound local controller.
func (p *Pin) EOI() {
	p.owner.eoi()
}
