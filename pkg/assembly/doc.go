// Package assembly defines the assembly graph as delivered by the CAD
// service: the root assembly with its instances, flattened occurrences and
// feature list, the sub-assembly instance lists, and the per-mate parameters
// and per-part metadata captured alongside it in a snapshot.
//
// Types mirror the service's JSON field names so a snapshot can be decoded
// without translation. Nothing in this package interprets the data.
package assembly
