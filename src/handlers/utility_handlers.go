package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

func WriteErrorToWriter(w http.ResponseWriter, errorString string) {
	jsonString, err := json.MarshalIndent(map[string]string{"error": errorString}, "", "\t")
	if err != nil {
		log.Print(err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonString)
}

func WriteJSONToWriter(w http.ResponseWriter, payload any) {
	responseBytes, err := json.MarshalIndent(payload, "", "\t")
	if err != nil {
		log.Panic(err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}
