// Package accel is the accelerated validation backend.
//
// An Engine compiles a fastskema.Descriptor once into a tree of closures with
// every constraint pre-resolved (regexes compiled, formats looked up, object
// shapes indexed) and caches the program by shape signature. Programs reuse
// the primitive checks of the interpreted dsl nodes, so both backends report
// identical issues for the same input.
//
// Only translatable descriptors compile: refinements, transforms and lazy
// references are Go closures or arena slots that a descriptor cannot carry,
// and Compile reports them with ErrUnsupported.
//
// The engine must be initialized (Init) before Validate serves calls; the
// dispatch package runs Init asynchronously with a timeout.
package accel
