package handler

import (
	"net/http"
	"strconv"

	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/service"

	"github.com/gin-gonic/gin"
)

type GeoHandler struct {
	geocoder service.AddressResolver
}

func NewGeoHandler(geocoder service.AddressResolver) *GeoHandler {
	return &GeoHandler{geocoder: geocoder}
}

// Handles GET /geocode/reverse?lat=&lng= (lon is accepted for lng). A
// lookup that fails is reported as found=false so the form can be filled in
// by hand.
func (h *GeoHandler) Reverse(c *gin.Context) {
	rawLng, ok := c.GetQuery("lng")
	if !ok {
		rawLng = c.Query("lon")
	}
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be numbers"})
		return
	}

	if h.geocoder == nil {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}

	addr, ok := h.geocoder.Reverse(c.Request.Context(), lat, lng)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "address": addr})
}

// Handles GET /barangays?q=
func (h *GeoHandler) ListBarangays(c *gin.Context) {
	names := geo.SearchBarangays(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"barangays": names, "total": len(names)})
}
