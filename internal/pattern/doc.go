// Package pattern defines the capability contract implemented by every
// overlay pattern, the registry patterns are looked up in, and the tracker
// that turns a declared pattern list into the desired set.
package pattern
