// Package hierarchy parses class lattices used for discounted classification
// scoring.
//
// A lattice file holds one path per line: the class name followed by its
// ancestors, tab separated. A class may appear on several lines when it has
// more than one parent.
package hierarchy
