package surveillance

// Selector choices offered on the surveillance form. A chemical or
// biological exposure outside the list is entered through OtherOption.
var (
	ChemicalOptions = []string{
		"Benzene", "Toluene", "Xylene", "n-Hexane", "Lead (inorganic)", "Mercury",
		"Arsenic", "Cadmium", "Chromium (VI)", "Manganese", "Formaldehyde",
		"Isocyanates", "Organophosphates", "Trichloroethylene", "Styrene", OtherOption,
	}

	BiologicalExposureOptions = []string{
		"Blood lead", "Urinary mercury", "Urinary arsenic", "Urinary cadmium",
		"Urinary hippuric acid", "Urinary methylhippuric acid", "Urinary t,t-muconic acid",
		"Plasma cholinesterase", "Red cell cholinesterase", OtherOption,
	}

	ExaminationTypeOptions = []string{"Pre-placement", "Periodic", "Return to work", "Exit", "Incidental"}

	FitnessOptions = []string{"Fit", "Fit with restriction", "Not Fit for Work"}

	RespiratorResultOptions = []string{"Fit", "Not Fit"}

	RecommendationOptions = []string{
		"Continue work", "Continue work with review", "Medical Removal Protection", "Refer to specialist",
	}
)
