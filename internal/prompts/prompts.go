package prompts

import "fmt"

// FridgeSystemPrompt asks the model to list every food visible in one fridge photo.
func FridgeSystemPrompt(language string) string {
	return fmt.Sprintf(`You will be given a photo of the inside of a refrigerator.
List every food item you can see, in as much detail as possible.
Name each food in %s, keeping names short.
For each food give an estimate of its calories (kcal) as it is stored.
Return only the structured list.`, language)
}

// FridgeDeltaSystemPrompt asks the model to compare two fridge photos against the known contents of the first.
func FridgeDeltaSystemPrompt(language string) string {
	return fmt.Sprintf(`You will be given two photos of the same refrigerator, taken at different times,
followed by the list of foods known to be in the first photo.
Compare the photos and report the difference:
- "add": foods present in the second photo but not in the first
- "remove": foods present in the first photo but missing from the second
Reuse the names from the given list for foods that appear in it exactly as written.
Name new foods in %s, keeping names short, with estimated calories (kcal).`, language)
}

// FridgeDeltaUserText wraps the serialized prior snapshot sent with the two photos.
func FridgeDeltaUserText(priorSnapshot string) string {
	return "Foods in the first photo: " + priorSnapshot
}
