package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

var maxDevices int = 200
var httpHostPort string = "127.0.0.1:1080"
var simUserID string = "simulator"

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

func main() {
	deviceIDs := make([]string, maxDevices)
	for i := 0; i < maxDevices; i++ {
		deviceIDs[i] = uuid.NewString()
	}
	fmt.Printf("generated %v device IDs\n", maxDevices)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := 0; i < maxDevices; i++ {
		i := i
		wg.Add(1)
		go func() {
			registerDevice(deviceIDs[i], i)
			fmt.Printf("\rregistered device %v", i)
			wg.Done()
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rregistered %v devices: used time=%v seconds, throughput=%v action/second\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := 0; i < maxDevices; i++ {
		i := i
		wg.Add(1)
		go func() {
			doAction(deviceIDs[i])
			wg.Done()
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rdid actions for %v devices: used time=%v seconds, throughput=%v action/second\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices*3)/usedTime.Seconds(),
	)
}

func flipCoin() bool {
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	val := min + rnd.Float64()*(max-min)
	multiplier := float64(math.Pow10(decimal))
	return float64(math.Round(float64(val)*float64(multiplier))) / multiplier
}

func registerDevice(deviceID string, index int) {
	payload := map[string]any{
		"id":            deviceID,
		"name":          fmt.Sprintf("Sim Tank %v", index),
		"phMin":         6.5,
		"phMax":         8.0,
		"tempMin":       24.0,
		"tempMax":       32.0,
		"ammoniaMax":    0.5,
		"phone":         "",
		"sendSms":       false,
		"alertInterval": 0,
	}

	jsonData, _ := json.Marshal(payload)
	resp, err := http.Post(
		fmt.Sprintf("http://%s/users/%s/devices", httpHostPort, simUserID),
		"application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		panic(fmt.Sprintf("device registration failed with status %v", resp.StatusCode))
	}
}

func doAction(deviceID string) {
	actions := []func(){
		genPostReadingAction(deviceID),
		genReadingHistoryAction(deviceID),
		genLatestReadingAction(deviceID),
	}
	actionNames := []string{
		"PostReading",
		"ReadingHistory",
		"LatestReading",
	}
	rnd.Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
		actionNames[i], actionNames[j] = actionNames[j], actionNames[i]
	})
	for index, action := range actions {
		action()
		fmt.Printf("\rexecuted action %v for device %v", actionNames[index], deviceID)
		time.Sleep(time.Duration(100+rnd.Int31n(1000)) * time.Millisecond)
	}
}

func genPostReadingAction(deviceID string) func() {
	return func() {
		// roughly one in ten readings spikes out of the safe band
		spike := rnd.Int31n(10) == 0

		ph := rndFloat64(6.6, 7.9, 2)
		temp := rndFloat64(24.5, 31.5, 2)
		ammonia := rndFloat64(0.0, 0.4, 2)
		if spike {
			if flipCoin() {
				temp = rndFloat64(33.0, 40.0, 2)
			} else {
				ammonia = rndFloat64(0.6, 1.5, 2)
			}
		}

		payload := map[string]any{
			"ph":          ph,
			"temperature": temp,
			"ammonia":     ammonia,
			"timestamp":   time.Now().UnixMilli(),
		}

		jsonData, _ := json.Marshal(payload)
		resp, err := http.Post(
			fmt.Sprintf("http://%s/devices/%s/readings", httpHostPort, deviceID),
			"application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("\nresponse status code != 200: %v\n", resp)
		}
	}
}

func genReadingHistoryAction(deviceID string) func() {
	return func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/devices/%s/readings", httpHostPort, deviceID))
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("\nresponse status code != 200: %v\n", resp)
		}
	}
}

func genLatestReadingAction(deviceID string) func() {
	return func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/devices/%s/readings/latest", httpHostPort, deviceID))
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			fmt.Printf("\nresponse status code != 200: %v\n", resp)
		}
	}
}
