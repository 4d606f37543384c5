package main

import (
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"volt/analytics"
	"volt/api"
	"volt/app"
	"volt/apps"
	"volt/gen"
	"volt/provider"
	"volt/share"
)

var EnvFlag = flag.String("env", "dev", "Set the environment")
var ServeFlag = flag.Bool("serve", false, "Run the server")
var AddressFlag = flag.String("address", ":8081", "Address for server")

func main() {
	flag.Parse()

	if !*ServeFlag {
		fmt.Println("--serve not set")
		return
	}

	// poll the local Ollama server for installed models
	provider.StartRefresh(100 * time.Second)

	// code generation
	http.HandleFunc("/api/generateCode", gen.GenerateCodeHandler)
	http.HandleFunc("/api/generateIdea", gen.GenerateIdeaHandler)
	http.HandleFunc("/api/refinePrompt", gen.RefinePromptHandler)
	http.HandleFunc("/api/fixCode", gen.FixCodeHandler)
	http.HandleFunc("/api/updateCode", gen.UpdateCodeHandler)

	// token analytics
	http.HandleFunc("/api/tokenAnalytics", analytics.Handler)

	// persistence
	http.HandleFunc("/api/generated-apps", apps.GeneratedHandler)
	http.HandleFunc("/api/saved-generations", apps.SavedHandler)

	// sharing
	http.HandleFunc("/api/share", share.Handler)

	// model registry and ollama management
	http.HandleFunc("/api/models", provider.ModelsHandler)
	http.HandleFunc("/api/fetchModels", provider.TagsHandler)
	http.HandleFunc("/api/pullModel", provider.PullHandler)
	http.HandleFunc("/api/deleteModel", provider.DeleteHandler)

	// server status
	http.HandleFunc("/status", app.StatusHandler)

	// serve the api doc
	http.HandleFunc("/api", api.Handler)

	fmt.Println("Starting server on", *AddressFlag)

	if err := http.ListenAndServe(*AddressFlag, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *EnvFlag == "dev" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		if v := len(r.URL.Path); v > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = r.URL.Path[:v-1]
		}

		http.DefaultServeMux.ServeHTTP(w, r)
	})); err != nil {
		fmt.Printf("Server error: %v\n", err)
		return
	}
}
