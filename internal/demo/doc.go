// Package demo provides layer-based example patterns (heatmap, choropleth,
// hexbin, labels) that attach to a maprender.Map.
package demo
