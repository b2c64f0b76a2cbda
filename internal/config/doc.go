// Package config provides centralized configuration management for the report
// service. Configuration is loaded from environment variables prefixed with
// MATCHREPORT_ and an optional YAML file, then validated.
//
// # Configuration Sources
//
// Values are resolved in order of precedence:
//
//  1. Environment variables that are explicitly set (highest priority)
//  2. The YAML file named by MATCHREPORT_CONFIG, or config.yaml / configs/config.yaml
//  3. Default values from the struct tags (lowest priority)
//
// # Example
//
//	MATCHREPORT_SERVER_PORT=9090
//	MATCHREPORT_REPORT_PROXY_METRIC=win_by_wickets
//	MATCHREPORT_NARRATIVE_PROVIDER=static
//	MATCHREPORT_NARRATIVE_STATIC_TEXT="Prepared for the selectors' meeting."
package config
