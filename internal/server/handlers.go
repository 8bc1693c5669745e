package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fourthcoffee/fc-commerce/internal/customers"
	"github.com/fourthcoffee/fc-commerce/pkg/version"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Short()})
}

func (s *Server) source(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"source":    s.svc.Source(),
		"usesLocal": s.svc.Source() == customers.SourceLocalFile,
	})
}

// listCustomers returns the page state, filtered locally by ?q=.
func (s *Server) listCustomers(c *gin.Context) {
	state := s.dir.State()
	if q := c.Query("q"); q != "" {
		state.Customers = s.dir.Filter(q)
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) reloadCustomers(c *gin.Context) {
	if err := s.dir.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": s.dir.State().Message})
		return
	}
	c.JSON(http.StatusOK, s.dir.State())
}

func (s *Server) searchCustomers(c *gin.Context) {
	results, err := s.dir.Search(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, customers.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": results})
}

func (s *Server) getCustomer(c *gin.Context) {
	customer, err := s.dir.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer":  customer,
		"firstName": customers.FirstName(customer),
	})
}

func (s *Server) getRecommendations(c *gin.Context) {
	customer, err := s.dir.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customerId": customer.CustomerID,
		"groups":     customers.GroupRecommendations(customer.Recommendations, customers.MaxRecommendations),
	})
}
