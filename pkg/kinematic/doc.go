// Package kinematic turns an indexed assembly and its classified mates into a
// rooted tree of links and joints.
//
// Build runs the whole resolution: it picks the trunk, orients the mate graph,
// resolves every DOF mate into a joint Relation, propagates link assignments
// through structural mates and mate groups until nothing changes, names the
// links and finally collects the tree. The returned Robot is read-only and is
// what renderers consume.
package kinematic
