package i18n

var messagesFR = map[string]string{
	"error.bad_request":            "Requête invalide",
	"error.missing_parameters":     "Missing required parameters",
	"error.unauthorized":           "Non authentifié",
	"error.forbidden":              "Accès refusé",
	"error.not_found":              "Ressource introuvable",
	"error.internal":               "Erreur interne du serveur",
	"error.too_many_requests":      "Trop de requêtes, veuillez réessayer plus tard",
	"error.admin_login_invalid":    "Identifiant ou mot de passe incorrect",
	"error.captcha_required":       "Veuillez compléter le captcha",
	"error.captcha_invalid":        "Captcha incorrect ou expiré",
	"error.captcha_config_invalid": "Configuration du captcha invalide",
	"error.captcha_verify_failed":  "Vérification du captcha impossible",
	"error.admin_email_forbidden":  "Cet email n'est pas autorisé à accéder à l'administration",
	"error.login_failed":           "Échec de la connexion",
	"error.admin_id_invalid":       "Identifiant administrateur invalide",
	"error.admin_id_type_invalid":  "Type d'identifiant administrateur invalide",
	"error.user_not_found":         "Utilisateur introuvable",
	"error.token_invalid":          "Jeton invalide ou expiré",
	"error.config_invalid":         "Configuration du serveur invalide",
	"error.stripe_not_configured":  "Stripe n'est pas configuré",
	"error.storage_not_configured": "Le stockage n'est pas configuré",
	"error.queue_unavailable":      "La file d'attente est indisponible",

	"promo.not_found":         "Code promo invalide",
	"promo.inactive":          "Ce code promo n'est plus actif",
	"promo.not_yet_valid":     "Ce code promo n'est pas encore valide",
	"promo.expired":           "Ce code promo a expiré",
	"promo.limit_reached":     "Ce code promo a atteint sa limite d'utilisation",
	"promo.plan_not_eligible": "Ce code promo n'est pas valide pour ce plan",
	"promo.already_used":      "Vous avez déjà utilisé ce code promo",
	"promo.already_redeemed":  "Code promo déjà utilisé",
	"promo.duplicate":         "Ce code promo existe déjà",
	"promo.invalid_type":      "Type de réduction invalide",
	"promo.invalid_value":     "Valeur de réduction invalide",
	"promo.invalid_window":    "La date de fin doit être postérieure à la date de début",
	"promo.validate_failed":   "Erreur lors de la validation du code promo",
	"promo.apply_failed":      "Erreur lors de l'application du code promo",
	"promo.fetch_failed":      "Erreur lors de la récupération des codes promo",
	"promo.save_failed":       "Erreur lors de l'enregistrement du code promo",
	"promo.delete_failed":     "Erreur lors de la suppression du code promo",
	"promo.sync_failed":       "Erreur lors de la synchronisation des coupons Stripe",
	"promo.sync_queued":       "Synchronisation des coupons planifiée",
	"promo.sync_done":         "Synchronisation terminée : %d synchronisé(s), %d ignoré(s), %d erreur(s)",
	"promo.sync_skip_exists":  "Already exists in Stripe",

	"plan.not_found":                "Plan introuvable",
	"plan.price_missing":            "Aucun prix Stripe n'est configuré pour ce plan",
	"checkout.create_failed":        "Erreur lors de la création de la session de paiement",
	"webhook.signature_invalid":     "Signature du webhook invalide",
	"webhook.process_failed":        "Erreur lors du traitement du webhook",
	"webhook.payload_too_large":     "Corps du webhook trop volumineux",
	"subscription.not_found":        "Aucun abonnement trouvé",
	"subscription.fetch_failed":     "Erreur lors de la récupération de l'abonnement",
	"subscription.cancel_failed":    "Erreur lors de l'annulation de l'abonnement",
	"subscription.not_active":       "Cet abonnement est déjà annulé",
	"subscription.cancel_scheduled": "Votre engagement de %d mois se termine le %s. Vous continuerez à être facturé chaque mois jusqu'à cette date, puis votre abonnement sera automatiquement annulé.",
	"subscription.canceled":         "Votre abonnement a été annulé avec succès. Aucun prélèvement ne sera effectué à partir de maintenant.",
	"asset.key_invalid":             "Clé de fichier invalide",
	"asset.sign_failed":             "Erreur lors de la génération de l'URL signée",

	"error.password_old_invalid":       "L'ancien mot de passe est incorrect",
	"error.password_weak":              "Le mot de passe est trop faible",
	"error.password_min_length":        "Le mot de passe doit contenir au moins %d caractères",
	"error.password_require_upper":     "Le mot de passe doit contenir une majuscule",
	"error.password_require_lower":     "Le mot de passe doit contenir une minuscule",
	"error.password_require_number":    "Le mot de passe doit contenir un chiffre",
	"error.password_require_special":   "Le mot de passe doit contenir un caractère spécial",
	"error.save_failed":                "Erreur lors de l'enregistrement",
	"error.password_reused":            "Le nouveau mot de passe doit être différent de l'ancien",
	"error.password_contains_username": "Le mot de passe ne doit pas contenir l'identifiant",
	"authz.role_invalid":               "Rôle invalide",
	"authz.policy_invalid":             "Règle d'accès invalide",
	"authz.policy_builtin":             "Les règles prédéfinies ne peuvent pas être retirées",
	"authz.update_failed":              "Erreur lors de la mise à jour des droits",
	"authz.fetch_failed":               "Erreur lors de la récupération des droits",
	"audit.fetch_failed":               "Erreur lors de la récupération du journal d'audit",
	"promo.invalid":                    "Code promo invalide (1 à 64 caractères)",
	"error.jwt_secret_missing":         "Secret JWT non configuré",
	"error.auth_header_missing":        "En-tête Authorization manquant",
	"error.auth_header_invalid":        "En-tête Authorization invalide",
	"error.token_revoked":              "Session expirée, veuillez vous reconnecter",
	"error.rate_limit_unavailable":     "Service de limitation indisponible",
	"error.rate_limited":               "Trop de requêtes, réessayez dans %d secondes",
	"error.login_too_many":             "Trop de tentatives de connexion, réessayez dans %d secondes",
	"promo.too_many":                   "Trop de tentatives de code promo, réessayez dans %d secondes",
}

var messagesEN = map[string]string{
	"error.bad_request":            "Invalid request",
	"error.missing_parameters":     "Missing required parameters",
	"error.unauthorized":           "Unauthorized",
	"error.forbidden":              "Forbidden",
	"error.not_found":              "Resource not found",
	"error.internal":               "Internal server error",
	"error.too_many_requests":      "Too many requests, please retry later",
	"error.admin_login_invalid":    "Invalid username or password",
	"error.captcha_required":       "Please complete the captcha",
	"error.captcha_invalid":        "Captcha is incorrect or expired",
	"error.captcha_config_invalid": "Captcha configuration is invalid",
	"error.captcha_verify_failed":  "Captcha verification failed",
	"error.admin_email_forbidden":  "This email is not allowed to access the back-office",
	"error.login_failed":           "Login failed",
	"error.admin_id_invalid":       "Invalid admin id",
	"error.admin_id_type_invalid":  "Invalid admin id type",
	"error.user_not_found":         "User not found",
	"error.token_invalid":          "Invalid or expired token",
	"error.config_invalid":         "Invalid server configuration",
	"error.stripe_not_configured":  "Stripe is not configured",
	"error.storage_not_configured": "Storage is not configured",
	"error.queue_unavailable":      "Queue is unavailable",

	"promo.not_found":         "Invalid promo code",
	"promo.inactive":          "This promo code is no longer active",
	"promo.not_yet_valid":     "This promo code is not valid yet",
	"promo.expired":           "This promo code has expired",
	"promo.limit_reached":     "This promo code has reached its usage limit",
	"promo.plan_not_eligible": "This promo code is not valid for this plan",
	"promo.already_used":      "You have already used this promo code",
	"promo.already_redeemed":  "Promo code already used",
	"promo.duplicate":         "This promo code already exists",
	"promo.invalid_type":      "Invalid discount type",
	"promo.invalid_value":     "Invalid discount value",
	"promo.invalid_window":    "End date must be after start date",
	"promo.validate_failed":   "Failed to validate promo code",
	"promo.apply_failed":      "Failed to apply promo code",
	"promo.fetch_failed":      "Failed to fetch promo codes",
	"promo.save_failed":       "Failed to save promo code",
	"promo.delete_failed":     "Failed to delete promo code",
	"promo.sync_failed":       "Failed to sync Stripe coupons",
	"promo.sync_queued":       "Coupon sync scheduled",
	"promo.sync_done":         "Sync finished: %d synced, %d skipped, %d error(s)",
	"promo.sync_skip_exists":  "Already exists in Stripe",

	"plan.not_found":                "Plan not found",
	"plan.price_missing":            "No Stripe price configured for this plan",
	"checkout.create_failed":        "Failed to create checkout session",
	"webhook.signature_invalid":     "Invalid webhook signature",
	"webhook.process_failed":        "Failed to process webhook",
	"webhook.payload_too_large":     "Webhook payload too large",
	"subscription.not_found":        "No subscription found",
	"subscription.fetch_failed":     "Failed to fetch subscription",
	"subscription.cancel_failed":    "Failed to cancel subscription",
	"subscription.not_active":       "This subscription is already canceled",
	"subscription.cancel_scheduled": "Your %d-month commitment ends on %s. You will keep being billed monthly until then, after which your subscription is canceled automatically.",
	"subscription.canceled":         "Your subscription has been canceled. No further payments will be taken.",
	"asset.key_invalid":             "Invalid object key",
	"asset.sign_failed":             "Failed to generate signed URL",

	"error.password_old_invalid":       "Old password is incorrect",
	"error.password_weak":              "Password is too weak",
	"error.password_min_length":        "Password must be at least %d characters",
	"error.password_require_upper":     "Password must contain an uppercase letter",
	"error.password_require_lower":     "Password must contain a lowercase letter",
	"error.password_require_number":    "Password must contain a number",
	"error.password_require_special":   "Password must contain a special character",
	"error.save_failed":                "Failed to save",
	"error.password_reused":            "New password must differ from the old one",
	"error.password_contains_username": "Password must not contain the username",
	"authz.role_invalid":               "Invalid role",
	"authz.policy_invalid":             "Invalid access rule",
	"authz.policy_builtin":             "Builtin access rules cannot be revoked",
	"authz.update_failed":              "Failed to update permissions",
	"authz.fetch_failed":               "Failed to fetch permissions",
	"audit.fetch_failed":               "Failed to fetch audit log",
	"promo.invalid":                    "Invalid promo code (1 to 64 characters)",
	"error.jwt_secret_missing":         "JWT secret is not configured",
	"error.auth_header_missing":        "Missing Authorization header",
	"error.auth_header_invalid":        "Invalid Authorization header",
	"error.token_revoked":              "Session expired, please sign in again",
	"error.rate_limit_unavailable":     "Rate limiter unavailable",
	"error.rate_limited":               "Too many requests, retry in %d seconds",
	"error.login_too_many":             "Too many login attempts, retry in %d seconds",
	"promo.too_many":                   "Too many promo code attempts, retry in %d seconds",
}
