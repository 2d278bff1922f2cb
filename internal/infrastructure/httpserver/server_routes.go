package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	api.Use(s.middleware.JWT.RequireJWT())

	api.POST("/fingerprints", s.fingerprint)
	api.POST("/fingerprints/batch", s.fingerprintBatch)

	cache := api.Group("/cache")
	cache.POST("/init", s.initCache)
	cache.POST("/lookup", s.lookupFile)
	cache.GET("/stats", s.cacheStats)
	cache.GET("/entries/:fingerprint", s.getCachedPayload)
	cache.GET("/entries/:fingerprint/meta", s.getCacheEntry)
	cache.PUT("/entries/:fingerprint", s.saveCachedPayload)
}
