package kinematic

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SanitizeName replaces characters that do not survive file names.
func SanitizeName(name string) string {
	return strings.NewReplacer(`"`, "in", "'", "ft").Replace(name)
}

// PartName derives a name from an instance name and its configuration. The
// trailing instance counter token ("<1>") is dropped. The base name ignores
// the configuration; the full name carries it when it is not "default" and
// short enough to be meaningful.
func PartName(instanceName, configuration string) (base, full string) {
	parts := strings.Split(SanitizeName(instanceName), " ")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	base = strings.ToLower(strings.Join(parts, "_"))
	configuration = SanitizeName(configuration)
	if configuration != "" && configuration != "default" && len(configuration) < 40 {
		parts = append(parts, "_"+strings.NewReplacer("=", "_", " ", "_").Replace(configuration))
	}
	return base, strings.ToLower(strings.Join(parts, "_"))
}

// bubbleTags moves each link_ tag to the link that owns the tagged
// occurrence.
func (r *resolution) bubbleTags() (map[string]string, error) {
	tags := make(map[string]string)
	owner := make(map[string]string)
	for _, tag := range r.mg.LinkTags {
		link, ok := r.assign[tag.Root]
		if !ok || link == FrameLink {
			r.warn("link_"+tag.Name, "tagged occurrence %s is not part of any link", r.idx.Name(tag.Root))
			continue
		}
		if prev, ok := tags[link]; ok && prev != tag.Name {
			return nil, fmt.Errorf("%w: link %s is tagged both %q and %q",
				ErrConflictingLinkName, r.idx.Name(link), prev, tag.Name)
		}
		if other, ok := owner[tag.Name]; ok && other != link {
			return nil, fmt.Errorf("%w: %q tags both %s and %s",
				ErrConflictingLinkName, tag.Name, r.idx.Name(other), r.idx.Name(link))
		}
		tags[link] = tag.Name
		owner[tag.Name] = link
		if tag.Root != link {
			r.log.Info("renamed link", zap.String("link", r.idx.Name(link)), zap.String("name", tag.Name))
		}
	}
	return tags, nil
}

// nameLinks names every link of the tree, parents first. Tagged links keep
// their tag; the others are named after their owning instance and made
// unique with a numeric suffix.
func (r *resolution) nameLinks(tree *Node, tags map[string]string) map[string]string {
	names := make(map[string]string)
	used := make(map[string]int)
	for _, name := range tags {
		used[name] = 1
	}
	tree.Walk(func(n *Node) {
		if tag, ok := tags[n.ID]; ok {
			names[n.ID] = tag
			n.Name = tag
			return
		}
		name := n.ID
		if occ, ok := r.idx.Lookup([]string{n.ID}); ok {
			_, name = PartName(occ.Instance.Name, occ.Instance.Configuration)
		}
		used[name]++
		if used[name] > 1 {
			name += "_" + strconv.Itoa(used[name])
		}
		names[n.ID] = name
		n.Name = name
	})
	return names
}
