// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"github.com/2dChan/liftview/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// featureCollection exports points as Point features and edges as LineString features, in
// canvas coordinates.
func featureCollection(points []geom.Point, edges []geom.Edge) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range points {
		f := geojson.NewFeature(orb.Point{p.X, p.Y})
		f.Properties["kind"] = "point"
		f.Properties["index"] = i
		fc.Append(f)
	}
	for i, e := range edges {
		f := geojson.NewFeature(orb.LineString{{e.X1, e.Y1}, {e.X2, e.Y2}})
		f.Properties["kind"] = "edge"
		f.Properties["index"] = i
		f.Properties["length"] = e.Start().Distance(e.End())
		fc.Append(f)
	}
	return fc
}
