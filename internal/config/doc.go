// Package config provides configuration parsing for bricks projects.
//
// The configuration is stored in bricks.json at the project root. Every
// field is optional; missing values fall back to the defaults in New.
//
// # Configuration File Structure
//
//	{
//	  "source": "components",
//	  "output": "dist",
//	  "ignore": ["demo", "index", "**/test/**"],
//	  "assetRoot": "polymer_bricks:polymer_components/components",
//	  "extensions": {
//	    "discover": ["html"],
//	    "dependency": ["css", "js", "html"]
//	  },
//	  "templateTag": "template",
//	  "maxDepth": 256,
//	  "workers": 8,
//	  "manifest": {"format": "json"},
//	  "dev": {"host": "localhost", "port": 3100, "interval": "300ms"},
//	  "publish": {"bucket": "assets", "prefix": "components/v1", "region": "us-east-1"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Source:", cfg.SourcePath())
package config
