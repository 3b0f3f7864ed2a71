package ann

import (
	"fmt"
	"math"
	"math/rand"
)

// Classifier turns a feature vector into a buy/sell decision pair.
type Classifier interface {
	Run(input []float64) (buy, sell bool)
}

// BatchTrainer is the training half of the classifier primitive. Rows
// before skipRows are fed forward without weight updates so recurrent
// context can warm up before learning starts.
type BatchTrainer interface {
	TrainBatch(inputs, desired [][]float64, learnRate, momentum float64, skipRows, cycles, rows int)
}

const outputCount = 2

// Network is a fixed-input-width sigmoid perceptron with one hidden
// layer and two outputs (buy, sell), trained by backpropagation with
// momentum.
type Network struct {
	inputCount  int
	hiddenCount int

	// weights[i][j] with j == fan-in count used as the bias weight
	hiddenWeights [][]float64
	outputWeights [][]float64

	hiddenMomentum [][]float64
	outputMomentum [][]float64
}

func NewNetwork(inputCount, hiddenCount int, seed int64) *Network {
	if inputCount <= 0 || hiddenCount <= 0 {
		panic(fmt.Sprintf("invalid network shape %d/%d", inputCount, hiddenCount))
	}
	rng := rand.New(rand.NewSource(seed))

	n := &Network{
		inputCount:     inputCount,
		hiddenCount:    hiddenCount,
		hiddenWeights:  randomLayer(rng, hiddenCount, inputCount+1),
		outputWeights:  randomLayer(rng, outputCount, hiddenCount+1),
		hiddenMomentum: zeroLayer(hiddenCount, inputCount+1),
		outputMomentum: zeroLayer(outputCount, hiddenCount+1),
	}
	return n
}

func (n *Network) InputCount() int {
	return n.inputCount
}

// Run applies the boolean convention to the two raw outputs.
func (n *Network) Run(input []float64) (bool, bool) {
	output := n.Forward(input)
	return output[0] >= 0.5, output[1] >= 0.5
}

func (n *Network) Forward(input []float64) []float64 {
	_, output := n.activate(input)
	return output
}

// TrainBatch runs cycles passes of online backpropagation over rows
// [skipRows, rows) of the training matrices.
func (n *Network) TrainBatch(inputs, desired [][]float64, learnRate, momentum float64, skipRows, cycles, rows int) {
	if rows > len(inputs) {
		rows = len(inputs)
	}
	for c := 0; c < cycles; c++ {
		for r := 0; r < rows; r++ {
			if r < skipRows {
				n.Forward(inputs[r])
				continue
			}
			n.trainRow(inputs[r], desired[r], learnRate, momentum)
		}
	}
}

// Error is the mean squared error of the network over the given rows.
func (n *Network) Error(inputs, desired [][]float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	sum := 0.0
	for r := range inputs {
		output := n.Forward(inputs[r])
		for o := 0; o < outputCount; o++ {
			diff := desired[r][o] - output[o]
			sum += diff * diff
		}
	}
	return sum / float64(len(inputs)*outputCount)
}

func (n *Network) activate(input []float64) (hidden, output []float64) {
	if len(input) != n.inputCount {
		panic(fmt.Sprintf("network expects %d inputs, got %d", n.inputCount, len(input)))
	}

	hidden = make([]float64, n.hiddenCount)
	for j := 0; j < n.hiddenCount; j++ {
		sum := n.hiddenWeights[j][n.inputCount]
		for i := 0; i < n.inputCount; i++ {
			sum += n.hiddenWeights[j][i] * input[i]
		}
		hidden[j] = sigmoid(sum)
	}

	output = make([]float64, outputCount)
	for o := 0; o < outputCount; o++ {
		sum := n.outputWeights[o][n.hiddenCount]
		for j := 0; j < n.hiddenCount; j++ {
			sum += n.outputWeights[o][j] * hidden[j]
		}
		output[o] = sigmoid(sum)
	}

	return hidden, output
}

func (n *Network) trainRow(input, desired []float64, learnRate, momentum float64) {
	hidden, output := n.activate(input)

	outputDelta := make([]float64, outputCount)
	for o := 0; o < outputCount; o++ {
		outputDelta[o] = (desired[o] - output[o]) * output[o] * (1 - output[o])
	}

	hiddenDelta := make([]float64, n.hiddenCount)
	for j := 0; j < n.hiddenCount; j++ {
		sum := 0.0
		for o := 0; o < outputCount; o++ {
			sum += outputDelta[o] * n.outputWeights[o][j]
		}
		hiddenDelta[j] = sum * hidden[j] * (1 - hidden[j])
	}

	for o := 0; o < outputCount; o++ {
		for j := 0; j < n.hiddenCount; j++ {
			change := learnRate*outputDelta[o]*hidden[j] + momentum*n.outputMomentum[o][j]
			n.outputWeights[o][j] += change
			n.outputMomentum[o][j] = change
		}
		change := learnRate*outputDelta[o] + momentum*n.outputMomentum[o][n.hiddenCount]
		n.outputWeights[o][n.hiddenCount] += change
		n.outputMomentum[o][n.hiddenCount] = change
	}

	for j := 0; j < n.hiddenCount; j++ {
		for i := 0; i < n.inputCount; i++ {
			change := learnRate*hiddenDelta[j]*input[i] + momentum*n.hiddenMomentum[j][i]
			n.hiddenWeights[j][i] += change
			n.hiddenMomentum[j][i] = change
		}
		change := learnRate*hiddenDelta[j] + momentum*n.hiddenMomentum[j][n.inputCount]
		n.hiddenWeights[j][n.inputCount] += change
		n.hiddenMomentum[j][n.inputCount] = change
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func randomLayer(rng *rand.Rand, rows, cols int) [][]float64 {
	layer := make([][]float64, rows)
	for i := range layer {
		layer[i] = make([]float64, cols)
		for j := range layer[i] {
			layer[i][j] = rng.Float64() - 0.5
		}
	}
	return layer
}

func zeroLayer(rows, cols int) [][]float64 {
	layer := make([][]float64, rows)
	for i := range layer {
		layer[i] = make([]float64, cols)
	}
	return layer
}
