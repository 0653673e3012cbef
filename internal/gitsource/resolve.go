package gitsource

import "path"

// candidateBases returns the Spring file-lookup basenames (without
// extension) for application A and profiles [P1..Pn] across the
// configured search paths, in priority order highest-first as defined in
// §4.4: for each search path, each profile from last to first against
// the application, then the unprofiled application base, then the same
// sweep against the shared "application" basename.
func candidateBases(searchPaths []string, application string, profiles []string) []string {
	paths := searchPaths
	if len(paths) == 0 {
		paths = []string{""}
	}

	var bases []string

	for _, sp := range paths {
		for i := len(profiles) - 1; i >= 0; i-- {
			bases = append(bases, join(sp, application+"-"+profiles[i]))
		}

		bases = append(bases, join(sp, application))

		for i := len(profiles) - 1; i >= 0; i-- {
			bases = append(bases, join(sp, "application-"+profiles[i]))
		}

		bases = append(bases, join(sp, "application"))
	}

	return bases
}

func join(searchPath, base string) string {
	if searchPath == "" {
		return base
	}

	return path.Join(searchPath, base)
}
