package configure

import (
	"sort"

	"github.com/jxwalker/mdcsync/internal/api"
)

// GroupNotInstalled builds the tiered not-installed list from the flat
// required/optional/boost fields of a python/* response.
func GroupNotInstalled(required, optional, boost api.StringList) api.NotInstalledList {
	return api.NotInstalledList{
		Required: cloneStrings(required),
		Optional: cloneStrings(optional),
		Boost:    cloneStrings(boost),
	}
}

// PackagesForList returns the names of all packages in the named list that
// are not installed globally, sorted. ok is false when the list is unknown.
func PackagesForList(installed api.InstalledList, listName string) (packages []string, ok bool) {
	set, ok := installed[listName]
	if !ok {
		return nil, false
	}
	packages = make([]string, 0, len(set))
	for _, p := range set {
		if p.Location == api.LocationGlobal {
			continue
		}
		packages = append(packages, p.Package)
	}
	sort.Strings(packages)
	return packages, true
}

func cloneStrings[S ~[]string](s S) S {
	if s == nil {
		return nil
	}
	return append(S(nil), s...)
}

func cloneInstalledList(l api.InstalledList) api.InstalledList {
	if l == nil {
		return nil
	}
	out := make(api.InstalledList, len(l))
	for name, set := range l {
		cp := make(api.PackageSet, len(set))
		for k, v := range set {
			cp[k] = v
		}
		out[name] = cp
	}
	return out
}

func cloneNotInstalled(n api.NotInstalledList) api.NotInstalledList {
	return GroupNotInstalled(n.Required, n.Optional, n.Boost)
}
