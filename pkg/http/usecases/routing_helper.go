package usecases

import (
	da "github.com/meridian-nav/meridian/pkg/datastructure"
	"github.com/meridian-nav/meridian/pkg/util"
	"go.uber.org/zap"
)

func (rs *RoutingService) snapOrigDestToNearbyVertices(origLat, origLon,
	dstLat, dstLon float64) (da.Index, da.Index, error) {

	orig, ok := rs.spatialIndex.SnapToNetwork(origLat, origLon)
	if !ok {
		return 0, 0, util.WrapErrorf(nil, util.ErrNotFound,
			"no road found near origin %f,%f", origLat, origLon)
	}
	dst, ok := rs.spatialIndex.SnapToNetwork(dstLat, dstLon)
	if !ok {
		return 0, 0, util.WrapErrorf(nil, util.ErrNotFound,
			"no road found near destination %f,%f", dstLat, dstLon)
	}

	rs.log.Debug("snapped query endpoints",
		zap.Float64("origin_snap_meters", orig.GetDistance()),
		zap.Float64("destination_snap_meters", dst.GetDistance()))

	return orig.GetVertex(), dst.GetVertex(), nil
}
