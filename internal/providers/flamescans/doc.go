// Package flamescans implements providers.Source for Flame Scans.
//
// Series pages live under a path prefix that the site rotates; the prefix is
// read from the home page logo link and cached until the next home page read.
// Page tokens follow the paging package: start with 0, stop at -1.
package flamescans
