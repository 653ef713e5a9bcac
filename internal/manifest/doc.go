// Package manifest loads the declared pattern list from YAML and watches it
// for changes.
//
// A manifest looks like:
//
//	params:
//	  opacity: 0.8
//	patterns:
//	  - id: heatmap
//	  - id: choropleth
//	    enabled: false
package manifest
