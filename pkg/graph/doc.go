// Package graph indexes the occurrences of an assembly, classifies its mates
// and orients the resulting undirected mate graph into a tree.
//
// Every occurrence is keyed by its full instance path. Mates are reduced to
// edges between top-level occurrence ids, since everything nested below a
// top-level instance moves with it.
package graph
