package dicomext

// Version is the module version, overridden at build time via -ldflags for
// release builds.
var Version = "0.1.0"

// FHIRVersion is the FHIR release the assembled documents target.
const FHIRVersion = "4.0.1"
