package server

import (
	"github.com/gin-gonic/gin"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
)

func (s *Server) registerCatalogRoutes(r gin.IRouter) {
	r.GET("/products", s.handleListProducts)
	r.GET("/products/:product_key", s.handleGetProduct)
	r.GET("/catalog", s.handleListOffers)
	r.GET("/catalog/:sku", s.handleGetOffer)
}

func (s *Server) handleListProducts(c *gin.Context) {
	products, err := s.catalog.ListActiveProducts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, products)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := s.catalog.GetProduct(c.Request.Context(), catalogdomain.Normalize(c.Param("product_key")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, product)
}

// handleListOffers implements GET /catalog: a repeatable sku= query
// preserves the caller's requested order (spec §6); with no sku given it
// lists every active offer.
func (s *Server) handleListOffers(c *gin.Context) {
	skus := c.QueryArray("sku")
	if len(skus) > 0 {
		for i, sku := range skus {
			skus[i] = catalogdomain.Normalize(sku)
		}
		offers, err := s.catalog.ListOffersPreservingOrder(c.Request.Context(), skus)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		Success(c, offers)
		return
	}

	offers, err := s.catalog.ListActiveOffers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, offers)
}

func (s *Server) handleGetOffer(c *gin.Context) {
	offer, err := s.catalog.GetActiveOffer(c.Request.Context(), catalogdomain.Normalize(c.Param("sku")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	Success(c, offer)
}
