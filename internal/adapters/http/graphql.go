package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	progressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteProgress",
		Fields: graphql.Fields{
			"segment_index":       &graphql.Field{Type: graphql.Int},
			"segment_fraction":    &graphql.Field{Type: graphql.Float},
			"overall_percent":     &graphql.Field{Type: graphql.Float},
			"completed_waypoints": &graphql.Field{Type: graphql.Int},
			"remaining_waypoints": &graphql.Field{Type: graphql.Int},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SimulatedPosition",
		Fields: graphql.Fields{
			"location":     &graphql.Field{Type: geoPointType},
			"time":         &graphql.Field{Type: graphql.String},
			"interpolated": &graphql.Field{Type: graphql.Boolean},
			"bearing_deg":  &graphql.Field{Type: graphql.Float},
			"speed_mps":    &graphql.Field{Type: graphql.Float},
			"heading":      &graphql.Field{Type: graphql.String},
			"source":       &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
			"progress":     &graphql.Field{Type: progressType},
		},
	})

	anomalyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Anomaly",
		Fields: graphql.Fields{
			"kind":             &graphql.Field{Type: graphql.String},
			"severity":         &graphql.Field{Type: graphql.String},
			"waypoint_indexes": &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"message":          &graphql.Field{Type: graphql.String},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AnalysisReport",
		Fields: graphql.Fields{
			"total_distance_meters": &graphql.Field{Type: graphql.Float},
			"duration_seconds":      &graphql.Field{Type: graphql.Float},
			"average_speed_mps":     &graphql.Field{Type: graphql.Float},
			"max_speed_mps":         &graphql.Field{Type: graphql.Float},
			"valid":                 &graphql.Field{Type: graphql.Boolean},
			"anomalies":             &graphql.Field{Type: graphql.NewList(anomalyType)},
		},
	})

	waypointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "WaypointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"timestamp": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"speed":     &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"simulate": &graphql.Field{
				Type:        positionType,
				Description: "Simulated position along a route at one instant",
				Args: graphql.FieldConfigArgument{
					"waypoints": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(waypointInput)))},
					"at":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := routeFromArgs(p.Args["waypoints"])
					if err != nil {
						return nil, err
					}
					at, err := time.Parse(time.RFC3339, p.Args["at"].(string))
					if err != nil {
						return nil, fmt.Errorf("at must be RFC 3339: %w", err)
					}
					return deps.Simulator.SimulateAt(route, at)
				},
			},
			"analyze": &graphql.Field{
				Type:        reportType,
				Description: "Plausibility analysis of a route",
				Args: graphql.FieldConfigArgument{
					"waypoints":               &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(waypointInput)))},
					"max_plausible_speed_mps": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := routeFromArgs(p.Args["waypoints"])
					if err != nil {
						return nil, err
					}
					th := deps.Thresholds
					if v, ok := p.Args["max_plausible_speed_mps"].(float64); ok && v > 0 {
						th.MaxPlausibleSpeedMps = v
					}
					return deps.Analyzer.Analyze(route, th)
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Great-circle distance in meters between two points",
				Args: graphql.FieldConfigArgument{
					"from_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return geospatial.Haversine(
						p.Args["from_lat"].(float64), p.Args["from_lon"].(float64),
						p.Args["to_lat"].(float64), p.Args["to_lon"].(float64),
					), nil
				},
			},
			"bearing": &graphql.Field{
				Type:        graphql.Float,
				Description: "Initial bearing in degrees from one point to another",
				Args: graphql.FieldConfigArgument{
					"from_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return geospatial.Bearing(
						p.Args["from_lat"].(float64), p.Args["from_lon"].(float64),
						p.Args["to_lat"].(float64), p.Args["to_lon"].(float64),
					), nil
				},
			},
			"geocode": &graphql.Field{
				Type:        geoPointType,
				Description: "Resolve an address to coordinates",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Geocoder == nil {
						return nil, fmt.Errorf("geocoding not configured")
					}
					result, err := deps.Geocoder.Geocode(p.Context, p.Args["address"].(string))
					if err != nil {
						return nil, err
					}
					return result.Location, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// routeFromArgs rebuilds a domain route from GraphQL waypoint input maps.
func routeFromArgs(raw interface{}) (*domain.Route, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("waypoints must be a list")
	}
	waypoints := make([]domain.Waypoint, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("waypoint %d is not an object", i)
		}
		ts, err := time.Parse(time.RFC3339, m["timestamp"].(string))
		if err != nil {
			return nil, fmt.Errorf("waypoint %d: timestamp must be RFC 3339: %w", i, err)
		}
		w := domain.Waypoint{
			Location: domain.Coordinate{
				Lat: m["lat"].(float64),
				Lon: m["lon"].(float64),
			},
			Time: ts,
		}
		if v, ok := m["speed"].(float64); ok {
			w.Speed = &v
		}
		waypoints = append(waypoints, w)
	}
	return domain.NewRoute("", waypoints)
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid GraphQL request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
